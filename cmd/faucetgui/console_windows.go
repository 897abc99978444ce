//go:build windows

package main

import "syscall"

var (
	procGetConsoleWindow = syscall.NewLazyDLL("kernel32.dll").NewProc("GetConsoleWindow")
	procShowWindow       = syscall.NewLazyDLL("user32.dll").NewProc("ShowWindow")
)

const swHide = 0

// hideConsole hides the console a double-clicked exe opens; logs go to
// the Logs window instead.
func hideConsole() {
	hwnd, _, _ := procGetConsoleWindow.Call()
	if hwnd != 0 {
		procShowWindow.Call(hwnd, swHide)
	}
}
