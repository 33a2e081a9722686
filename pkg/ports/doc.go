/*
Package ports defines the driving ports (interfaces) of the chains engine.

These interfaces decouple the adapters from the engine, so the HTTP and MCP servers
can be tested against any implementation and the engine never imports them.

# Key Interfaces

  - ChainController: lists, inspects and stops live chains from any goroutine.

RunChainControllerContract verifies an implementation against the shared contract.
*/
package ports
