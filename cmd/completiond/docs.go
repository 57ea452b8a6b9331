package main

// General API documentation for swaggo. Regenerate docs/ with
// `swag init -g cmd/completiond/docs.go -o docs`.
//
// @title           completiond API
// @version         1.0
// @description     HTTP completion endpoint backed by a static model registry.
//
// @contact.name   completiond maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
