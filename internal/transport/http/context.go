// Copyright 2026 The ZenaManage Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"context"

	"github.com/kha997/zenamanage/internal/rbac"
)

type contextKey string

const authContextKey contextKey = "auth_context"

// GetAuthContext retrieves the request's authorization context. The
// context is built once per request by AuthMiddleware and never refreshed
// mid-request; decisions within one request are internally consistent.
func GetAuthContext(ctx context.Context) *rbac.AuthContext {
	if val, ok := ctx.Value(authContextKey).(*rbac.AuthContext); ok {
		return val
	}
	return nil
}

func withAuthContext(ctx context.Context, actx *rbac.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, actx)
}
