package chains

import (
	_ "embed"
)

// Version is the release of the chains module, read from the VERSION file.
//
//go:embed VERSION
var Version string
