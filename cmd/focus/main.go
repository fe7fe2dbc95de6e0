package main

import "pomodoro/cmd/focus/root"

func main() {
	root.Execute()
}
