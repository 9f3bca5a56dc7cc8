package api

import _ "embed"

// LendingSpec 借贷服务 OpenAPI 文档
//
//go:embed openapi/lending.yaml
var LendingSpec []byte
