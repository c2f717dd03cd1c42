//go:build !windows

package settings

func configBaseDir() string {
	return "/etc"
}
