/*
Package dsl builds scenario documents in Go, for flows generated at runtime or
assembled in tests, where a YAML file is in the way.

	doc, err := dsl.New().
		Group(scenario.GroupSequential).
		Add("intro").
		NoWait("fade in").
		Wait(500 * time.Millisecond).
		Log("Welcome!").
		Builder().
		Add("hud").
		Parallel().
		Log("health bar").
		Embed("sparkles", func(c *dsl.ChainBuilder) {
			c.Wait(time.Second).NoWait("sparkle")
		}).
		Builder().
		Build()

The result is validated like a parsed file and started with Document.Start.
*/
package dsl
