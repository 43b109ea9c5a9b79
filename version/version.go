package version

// set through the -ldflags option at build time
var version = "development"

// Version returns the apphashd version
func Version() string {
	return version
}
