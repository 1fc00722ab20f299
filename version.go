package main

// Version is overridden at build time with -ldflags "-X main.Version=x.y.z".
var Version = "dev"
