package reply

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"
)

//go:embed template/messages.tmpl
var messagesRaw string

// Apology is sent when a message could not be handled.
const Apology = "Ops! Algo deu errado. Tente novamente."

// Business is loaded with the BUSINESS_ prefix.
type Business struct {
	Name      string `default:"Bolo de Oz"`
	PixKey    string `split_words:"true" default:"54606633000177"`
	Address   string `default:"Rua Dona Palmira - Helena Maria - Osasco - SP"`
	Instagram string `default:"https://instagram.com/bolodeoz"`
	IfoodLink string `split_words:"true" default:"https://www.ifood.com.br/delivery/osasco/bolo-de-oz"`
}

func DefaultBusiness() Business {
	return Business{
		Name:      "Bolo de Oz",
		PixKey:    "54606633000177",
		Address:   "Rua Dona Palmira - Helena Maria - Osasco - SP",
		Instagram: "https://instagram.com/bolodeoz",
		IfoodLink: "https://www.ifood.com.br/delivery/osasco/bolo-de-oz",
	}
}

type view struct {
	Business   Business
	Items      []contractx.MenuItem
	Cart       []contractx.MenuItem
	Total      contractx.Money
	Item       contractx.MenuItem
	CustomerID string
}

// Texts renders every customer-facing message.
type Texts struct {
	business Business
	tmpl     *template.Template
}

func New(business Business) (*Texts, error) {
	tmpl, err := template.New("messages").
		Funcs(template.FuncMap{
			"upper": strings.ToUpper,
			"inc":   func(i int) int { return i + 1 },
		}).
		Parse(messagesRaw)
	if err != nil {
		return nil, fmt.Errorf("parse reply templates: %w", err)
	}
	return &Texts{business: business, tmpl: tmpl}, nil
}

// MustNew panics if the embedded templates fail to parse.
func MustNew(business Business) *Texts {
	t, err := New(business)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Texts) Business() Business { return t.business }

func (t *Texts) Greeting() string { return t.render("greeting", view{}) }

func (t *Texts) Catalog(items []contractx.MenuItem) string {
	return t.render("catalog", view{Items: items})
}

func (t *Texts) CartMenu(cart []contractx.MenuItem) string {
	return t.render("cart_menu", cartView(cart))
}

func (t *Texts) ItemAdded(item contractx.MenuItem, cart []contractx.MenuItem) string {
	v := cartView(cart)
	v.Item = item
	return t.render("item_added", v)
}

func (t *Texts) ItemRemoved(item contractx.MenuItem, cart []contractx.MenuItem) string {
	v := cartView(cart)
	v.Item = item
	return t.render("item_removed", v)
}

func (t *Texts) CartAlreadyEmpty() string { return t.render("cart_already_empty", view{}) }
func (t *Texts) CartCleared() string      { return t.render("cart_cleared", view{}) }
func (t *Texts) CartEmpty() string        { return t.render("cart_empty", view{}) }
func (t *Texts) InvalidNumber() string    { return t.render("invalid_number", view{}) }

func (t *Texts) OrderSlip(customerID string, cart []contractx.MenuItem) string {
	v := cartView(cart)
	v.CustomerID = customerID
	return t.render("order_slip", v)
}

func (t *Texts) Farewell() string         { return t.render("farewell", view{}) }
func (t *Texts) PaymentConfirmed() string { return t.render("payment_confirmed", view{}) }
func (t *Texts) OrderFailed() string      { return t.render("order_failed", view{}) }
func (t *Texts) Location() string         { return t.render("location", view{}) }
func (t *Texts) Pix() string              { return t.render("pix", view{}) }
func (t *Texts) Social() string           { return t.render("social", view{}) }
func (t *Texts) Attendant() string        { return t.render("attendant", view{}) }

func (t *Texts) render(name string, v view) string {
	v.Business = t.business

	var buf bytes.Buffer
	if err := t.tmpl.ExecuteTemplate(&buf, name, v); err != nil {
		log.Error().Err(err).Str("template", name).Msg("render reply failed")
		return Apology
	}
	return buf.String()
}

func cartView(cart []contractx.MenuItem) view {
	var total contractx.Money
	for _, it := range cart {
		total += it.Price
	}
	return view{Cart: cart, Total: total}
}
