package util

import (
	"errors"
	"os/exec"
	"runtime"
)

// browserCandidates 按优先级列出各平台打开 URL 的命令，首个成功启动即返回
func browserCandidates(goos, url string) [][]string {
	switch goos {
	case "windows":
		// rundll32 在 Windows 7 上比 cmd /c start 稳定
		return [][]string{
			{"rundll32", "url.dll,FileProtocolHandler", url},
			{"explorer", url},
		}
	case "darwin":
		return [][]string{{"open", url}}
	default:
		return [][]string{
			{"xdg-open", url},
			{"google-chrome", url},
			{"firefox", url},
			{"chromium-browser", url},
			{"sensible-browser", url},
		}
	}
}

// OpenBrowser 打开默认浏览器，失败时依次尝试备选命令
func OpenBrowser(url string) error {
	var errs []error
	for _, argv := range browserCandidates(runtime.GOOS, url) {
		err := exec.Command(argv[0], argv[1:]...).Start()
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
