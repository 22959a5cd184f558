package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicAttributes tags the request's New Relic transaction with the actor and,
// after the handler runs, any error the handler recorded. It is a no-op when the
// request carries no transaction.
func NewRelicAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		if actor := Actor(c); actor != "" {
			txn.AddAttribute("actor", string(actor))
		}

		c.Next()

		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
		if code, ok := c.Get(ErrorCodeKey); ok {
			txn.AddAttribute("error_code", code)
		}
	}
}

// ErrorCodeKey is the gin context key under which handlers record the machine
// code of a failed request.
const ErrorCodeKey = "error_code"
