package main

import (
	"github.com/avelichko/planpoker/internal/app"
	"github.com/avelichko/planpoker/internal/config"
)

func main() {
	app.Go(config.Load())
}
