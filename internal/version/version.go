package version

// Version is the tool version, set at build time with
// -ldflags "-X github.com/hashicorp-forge/onshape-drawings/internal/version.Version=...".
var Version = "0.1.0-dev"
