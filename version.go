package chatrelay

const Version = "v0.0.1"
