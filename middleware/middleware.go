// Package middleware provides HTTP authorization middleware backed by the
// relationship store.
package middleware

import (
	"encoding/json"

	"github.com/xraph/forge"

	authz "github.com/testmytrinh/tmt-lms-backend"
	"github.com/testmytrinh/tmt-lms-backend/relation"
	"github.com/testmytrinh/tmt-lms-backend/schema"
)

// Check names one relation check against an object whose id comes from a
// route parameter.
type Check struct {
	Relation   schema.Relation
	ObjectType schema.ObjectType

	// Param is the route parameter holding the object id (default "id").
	Param string
}

func (c Check) param() string {
	if c.Param == "" {
		return "id"
	}
	return c.Param
}

// Require enforces one relation on the object identified by the "id" route
// parameter. The subject is the authenticated user from the request context;
// requests without one are denied. A store error propagates to the server's
// error handler instead of masquerading as a deny.
func Require(eng *authz.Engine, rel schema.Relation, objectType schema.ObjectType) forge.Middleware {
	return RequireAll(eng, Check{Relation: rel, ObjectType: objectType})
}

// RequireAny allows the request if ANY of the checks pass.
func RequireAny(eng *authz.Engine, checks ...Check) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			subject, ok := resolveSubject(ctx)
			if !ok {
				return denyResponse(ctx)
			}
			for _, c := range checks {
				object := relation.Key(string(c.ObjectType), ctx.Param(c.param()))
				allowed, err := eng.HasPermission(ctx.Context(), subject, c.Relation, object)
				if err != nil {
					return err
				}
				if allowed {
					return next(ctx)
				}
			}
			return denyResponse(ctx)
		}
	}
}

// RequireAll allows the request only if ALL checks pass.
func RequireAll(eng *authz.Engine, checks ...Check) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			subject, ok := resolveSubject(ctx)
			if !ok {
				return denyResponse(ctx)
			}
			for _, c := range checks {
				object := relation.Key(string(c.ObjectType), ctx.Param(c.param()))
				allowed, err := eng.HasPermission(ctx.Context(), subject, c.Relation, object)
				if err != nil {
					return err
				}
				if !allowed {
					return denyResponse(ctx)
				}
			}
			return next(ctx)
		}
	}
}

// resolveSubject extracts the subject key from the authenticated user in
// the request context. Anonymous requests carry no subject.
func resolveSubject(ctx forge.Context) (string, bool) {
	userID := forge.UserIDFromContext(ctx.Context())
	if userID == "" {
		return "", false
	}
	return relation.Key(string(schema.TypeUser), userID), true
}

func denyResponse(ctx forge.Context) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(403)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": "access denied"})
}
