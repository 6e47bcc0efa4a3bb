package nav

import "strings"

const LoginPath = "/login"

// RootPaths are the locations where a platform back signal may leave the
// application.
var RootPaths = []string{
	LoginPath,
	"/admin/dashboard",
	"/trabajador/dashboard",
}

type BackAction struct {
	// Exit lets the platform run its default behaviour.
	Exit bool `json:"exit"`
	// NavigateBack asks the application to go back in its own history.
	NavigateBack bool `json:"navigate_back"`
}

func Back(path string) BackAction {
	if isRoot(path) {
		return BackAction{Exit: true}
	}
	return BackAction{NavigateBack: true}
}

func isRoot(path string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	for _, p := range RootPaths {
		if path == p {
			return true
		}
	}
	return false
}
