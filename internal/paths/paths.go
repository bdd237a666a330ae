// Package paths resolves where downloads go and how paths are shown to the user.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DownloadsFolder is the folder under the home directory that receives downloads.
const DownloadsFolder = "Downloads"

// androidDownloads is the shared external storage folder visible to file managers.
const androidDownloads = "/sdcard/Download"

// DownloadsDir returns the user's default downloads directory in the
// platform's native form.
func DownloadsDir() (string, error) {
	if isAndroid() {
		return androidDownloads, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, DownloadsFolder), nil
}

func isAndroid() bool {
	return runtime.GOOS == "android" ||
		os.Getenv("ANDROID_DATA") != "" ||
		os.Getenv("ANDROID_ROOT") != ""
}

// Display converts path separators to forward slashes. The result is for
// printing only; filesystem calls keep using the native path.
func Display(path string) string {
	return strings.ReplaceAll(path, `\`, "/")
}
