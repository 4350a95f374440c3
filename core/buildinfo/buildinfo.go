package buildinfo

// Build metadata stamped in via -ldflags:
//
//	-X 'github.com/m3rciful/promobot/core/buildinfo.Version=v1.2.3'
//	-X 'github.com/m3rciful/promobot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/promobot/core/buildinfo.Date=2025-08-30T12:00:00Z'
//
// The defaults identify a local development build.
var (
	// Version is the semantic version or tag of the build.
	Version = "dev"
	// Commit is the source control commit the binary was built from.
	Commit = "local"
	// Date is the build timestamp in RFC3339 format, empty when unset.
	Date = ""
)

// Summary renders the one-line version string shown to users, such as
// "v1.2.3 (abcdef0) built 2025-08-30T12:00:00Z".
func Summary() string {
	s := Version + " (" + Commit + ")"
	if Date != "" {
		s += " built " + Date
	}
	return s
}
