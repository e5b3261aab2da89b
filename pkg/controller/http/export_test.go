package http

// StatusOf is exported for testing
var StatusOf = statusOf
