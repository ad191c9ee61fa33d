// Package app contains the core application logic. It wires the built-in
// modules, the HCL manifests and targets, the execution platform and the
// resolver into one App, decoupled from any specific entrypoint like a CLI.
package app
