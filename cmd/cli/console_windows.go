//go:build windows

package main

import "golang.org/x/sys/windows"

// init switches the Windows console to UTF-8 and enables ANSI escape
// processing so the styled output and box-drawing banners render
// instead of degrading to mojibake.
func init() {
	windows.SetConsoleOutputCP(65001)
	windows.SetConsoleCP(65001)

	for _, std := range []uint32{windows.STD_OUTPUT_HANDLE, windows.STD_ERROR_HANDLE} {
		h, err := windows.GetStdHandle(std)
		if err != nil {
			continue
		}
		var mode uint32
		if err := windows.GetConsoleMode(h, &mode); err != nil {
			continue
		}
		windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
	}
}
