package notify

import (
	"fmt"
	"html/template"
	"strings"
)

// Template names shared between the dispatcher and its callers.
const (
	TplOrderPlacedBuyer  = "order_placed_buyer"
	TplOrderPlacedSeller = "order_placed_seller"
	TplShopVerified      = "shop_verified"
	TplShopSubmitted     = "shop_submitted"
	TplUserConfirmation  = "user_confirmation"
	TplPasswordReset     = "password_reset"
)

type mailTemplate struct {
	subject string
	body    *template.Template
}

var templates = map[string]mailTemplate{
	TplOrderPlacedBuyer: {
		subject: "Your order has been placed",
		body: mustTpl(`<p>Hi {{.Name}},</p>
<p>Your order #{{.TransactionID}} for {{.Quantity}}x {{.ProductName}} is now pending at {{.ShopName}}.</p>
<p>Total: {{.Total}}</p>`),
	},
	TplOrderPlacedSeller: {
		subject: "You received a new order",
		body: mustTpl(`<p>Hi {{.Name}},</p>
<p>{{.BuyerName}} ordered {{.Quantity}}x {{.ProductName}} (order #{{.TransactionID}}).</p>
<p>Total: {{.Total}}</p>`),
	},
	TplShopVerified: {
		subject: "Your shop has been verified",
		body: mustTpl(`<p>Hi {{.Name}},</p>
<p>Your shop {{.ShopName}} has been verified and is now visible to buyers.</p>`),
	},
	TplShopSubmitted: {
		subject: "New shop awaiting review",
		body: mustTpl(`<p>Shop {{.ShopName}} (owner {{.OwnerName}}) was registered and needs verification.</p>`),
	},
	TplUserConfirmation: {
		subject: "Confirm your account",
		body: mustTpl(`<p>Hi {{.Name}},</p>
<p>Welcome! Confirm your account by opening <a href="{{.URL}}">this link</a>.</p>`),
	},
	TplPasswordReset: {
		subject: "Reset your password",
		body: mustTpl(`<p>Reset your password by opening <a href="{{.URL}}">this link</a>. If you did not request this, ignore this mail.</p>`),
	},
}

func mustTpl(s string) *template.Template {
	return template.Must(template.New("").Parse(s))
}

// Render produces the subject and HTML body for a named template.
func Render(name string, data map[string]any) (subject, body string, err error) {
	t, ok := templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown mail template %q", name)
	}
	var b strings.Builder
	if err := t.body.Execute(&b, data); err != nil {
		return "", "", err
	}
	return t.subject, b.String(), nil
}
