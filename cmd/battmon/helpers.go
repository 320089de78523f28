package main

import (
	"github.com/fatih/color"

	"github.com/battmon/battmon/pkg/client"
)

func newAPIClient() *client.Client {
	return client.NewClient(daemonAddr)
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
