package constant

import (
	"os"

	"LagrangeGo/config"
)

var (
	LogFile       *os.File
	Configuration *config.Config
)
