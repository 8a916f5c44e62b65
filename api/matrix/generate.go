package matrix

//go:generate go run github.com/swaggo/swag/cmd/swag@v1.16.6 init --dir ../../internal/matrix/http,../../pkg/matrixsdk,../../pkg/jwtx --generalInfo router.go --output . --outputTypes go --packageName matrix
