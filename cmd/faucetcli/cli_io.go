package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

func readPassword(prompt string) string {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		die("failed to read private key: " + err.Error())
	}
	return strings.TrimSpace(string(b))
}

// lines feeds stdin to the REPL one trimmed line at a time.
func lines(r *bufio.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		for {
			t, err := r.ReadString('\n')
			if t = strings.TrimSpace(t); t != "" || err == nil {
				ch <- t
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

func yes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes" || s == "是"
}

func die(msg string) { fmt.Fprintln(os.Stderr, msg); os.Exit(1) }

func must(err error, msg string) {
	if err != nil {
		die(msg + ": " + err.Error())
	}
}
