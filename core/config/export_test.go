package config

// Reset exposes reset to black-box tests.
var Reset = reset
