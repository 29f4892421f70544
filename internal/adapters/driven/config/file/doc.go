// Package file provides the TOML configuration store kept in the ragkit
// home directory, with live reload through fsnotify.
package file
