package main

import (
	"os"

	"hound.fit/jobhound/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
