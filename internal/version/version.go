package version

// Version is the current issuebot release.
const Version = "0.3.0"

// FullVersion returns the version with its v prefix.
func FullVersion() string {
	return "v" + Version
}

// UserAgent is sent with every GitHub API call.
func UserAgent() string {
	return "issuebot/" + Version
}
