// Package readlater holds build metadata shared by the commands.
package readlater

// Version is the release version of the readlater binaries.
const Version = "0.1.0"
