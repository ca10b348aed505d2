// Package validator checks operation payloads against JSON Schema documents.
//
//	schema := validator.MustCompile("createUser", []byte(`{
//		"type": "object",
//		"required": ["email"],
//		"properties": {"email": {"type": "string", "format": "email"}}
//	}`))
//
//	r.Operation("createUser", createUser, router.WithValidator(schema))
//
// Schemas can also be loaded from an fs.FS with LoadFS, one file per operation.
package validator
