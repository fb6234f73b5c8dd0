package main

import (
	"browser-pilot/internal/bootstrap"
)

func main() {
	bootstrap.NewApp().Run()
}
