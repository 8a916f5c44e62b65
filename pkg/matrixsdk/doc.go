// Package matrixsdk is a Go client for the matrixstore HTTP API.
//
// A Client covers the unauthenticated endpoints (account creation, login,
// health and JWKS). Login returns a Session that attaches the bearer token
// to the matrix endpoints:
//
//	c := matrixsdk.NewClient("http://localhost:8080")
//	if _, err := c.CreateAccount(ctx, "ana@example.com", "s3cret"); err != nil {
//		return err
//	}
//	sess, err := c.Login(ctx, "ana@example.com", "s3cret")
//	if err != nil {
//		return err
//	}
//	id, err := sess.SaveMatrix(ctx, nil, []matrixsdk.Column{
//		{ColumnName: "price", Transformation: "log"},
//	})
//
// Server failures come back as *APIError. The same wire types are used by
// the server handlers, so both sides agree on the JSON shapes.
package matrixsdk
