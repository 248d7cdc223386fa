// Package controllers adapts HTTP requests onto the services. Every domain
// error leaves as {"message": ...} with the status apperr assigns it.
package controllers

import (
	"github.com/kwanzatukule/marketplace/app/apperr"
	"github.com/kwanzatukule/marketplace/pkg/ctx"
)

// fail writes err using its apperr kind. Unclassified errors become a bare
// 500 so store details never reach the client.
func fail(c *ctx.Context, err error) {
	c.Error(apperr.Status(err), apperr.Message(err))
}
