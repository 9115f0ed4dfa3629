package push

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/gitdone-app/gitdone-client/pkg/logger"
)

// LogNotifier writes notifications to the structured log. It is the
// default when no interactive surface is attached.
type LogNotifier struct{}

func (LogNotifier) Show(n Notification) error {
	logger.Log.WithField("url", n.URL).Infof("%s: %s", n.Title, n.Body)
	return nil
}

// OpenURL follows a notification's target URL in the local browser,
// the click-through counterpart to showing it.
func OpenURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %v", url, err)
	}
	return nil
}
