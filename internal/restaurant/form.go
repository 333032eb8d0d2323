package restaurant

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/kiwari-pos/storefront/internal/apperr"
	"github.com/kiwari-pos/storefront/internal/money"
	"github.com/shopspring/decimal"
)

const (
	MinDeliveryMinutes = 5
	MaxDeliveryMinutes = 180
	// DefaultDeliveryMinutes prefills a new restaurant form.
	DefaultDeliveryMinutes = 30
)

var minMenuPrice = decimal.RequireFromString("0.01")

// FormMenuItem is a menu row on the edit surface. Price is in major units.
type FormMenuItem struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Image is an uploaded restaurant image.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Form is the manage-restaurant edit surface. Prices are major-unit decimals;
// they become minor units again only when the form is written out.
type Form struct {
	RestaurantName        string          `json:"restaurantName"`
	City                  string          `json:"city"`
	Country               string          `json:"country"`
	DeliveryPrice         decimal.Decimal `json:"deliveryPrice"`
	EstimatedDeliveryTime int             `json:"estimatedDeliveryTime"`
	Cuisines              []string        `json:"cuisines"`
	MenuItems             []FormMenuItem  `json:"menuItems"`
	ImageURL              string          `json:"imageUrl,omitempty"`
	ImageFile             *Image          `json:"-"`
}

// NewForm returns the blank form offered when no restaurant exists yet.
func NewForm() Form {
	return Form{
		EstimatedDeliveryTime: DefaultDeliveryMinutes,
		Cuisines:              []string{},
		MenuItems:             []FormMenuItem{{}},
	}
}

// FormFromRestaurant prefills the form from an existing record.
func FormFromRestaurant(r *Restaurant) Form {
	f := Form{
		RestaurantName:        r.RestaurantName,
		City:                  r.City,
		Country:               r.Country,
		DeliveryPrice:         money.ToMajor(r.DeliveryPrice),
		EstimatedDeliveryTime: r.EstimatedDeliveryTime,
		Cuisines:              append([]string{}, r.Cuisines...),
		MenuItems:             make([]FormMenuItem, 0, len(r.MenuItems)),
		ImageURL:              r.ImageURL,
	}
	for _, m := range r.MenuItems {
		f.MenuItems = append(f.MenuItems, FormMenuItem{Name: m.Name, Price: money.ToMajor(m.Price)})
	}
	return f
}

// Validate reports every invalid field. The result wraps one
// *apperr.ValidationError per problem.
func (f Form) Validate() error {
	var errs []error
	add := func(field, msg string) {
		errs = append(errs, apperr.NewValidation(field, msg))
	}

	if strings.TrimSpace(f.RestaurantName) == "" {
		add("restaurantName", "Restaurant name is required")
	}
	if strings.TrimSpace(f.City) == "" {
		add("city", "City is required")
	}
	if strings.TrimSpace(f.Country) == "" {
		add("country", "Country is required")
	}
	if f.DeliveryPrice.IsNegative() {
		add("deliveryPrice", "Delivery price must be positive")
	}
	if f.EstimatedDeliveryTime < MinDeliveryMinutes {
		add("estimatedDeliveryTime", "Minimum 5 minutes")
	} else if f.EstimatedDeliveryTime > MaxDeliveryMinutes {
		add("estimatedDeliveryTime", "Maximum 3 hours")
	}
	if len(f.Cuisines) == 0 {
		add("cuisines", "Please select at least one cuisine")
	}
	if len(f.MenuItems) == 0 {
		add("menuItems", "At least one menu item is required")
	}
	for i, m := range f.MenuItems {
		if strings.TrimSpace(m.Name) == "" {
			add(fmt.Sprintf("menuItems[%d][name]", i), "Name is required")
		}
		if m.Price.LessThan(minMenuPrice) {
			add(fmt.Sprintf("menuItems[%d][price]", i), "Price must be at least 0.01")
		}
	}
	if f.ImageURL == "" && f.ImageFile == nil {
		add("imageFile", "Either image URL or image file must be provided")
	}
	return errors.Join(errs...)
}

// WriteMultipart writes the form as the multipart body expected by
// POST and PUT /my/restaurant. Prices are written in minor units. An image
// file takes precedence over an image URL.
func (f Form) WriteMultipart(w *multipart.Writer) error {
	fields := [][2]string{
		{"restaurantName", f.RestaurantName},
		{"city", f.City},
		{"country", f.Country},
		{"deliveryPrice", strconv.FormatInt(money.ToMinor(f.DeliveryPrice), 10)},
		{"estimatedDeliveryTime", strconv.Itoa(f.EstimatedDeliveryTime)},
	}
	for i, c := range f.Cuisines {
		fields = append(fields, [2]string{fmt.Sprintf("cuisines[%d]", i), c})
	}
	for i, m := range f.MenuItems {
		fields = append(fields,
			[2]string{fmt.Sprintf("menuItems[%d][name]", i), m.Name},
			[2]string{fmt.Sprintf("menuItems[%d][price]", i), strconv.FormatInt(money.ToMinor(m.Price), 10)},
		)
	}
	if f.ImageFile == nil && f.ImageURL != "" {
		fields = append(fields, [2]string{"imageUrl", f.ImageURL})
	}
	for _, kv := range fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return fmt.Errorf("write field %s: %w", kv[0], err)
		}
	}

	if f.ImageFile != nil {
		if err := writeImage(w, f.ImageFile); err != nil {
			return err
		}
	}
	return nil
}

func writeImage(w *multipart.Writer, img *Image) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="imageFile"; filename=%q`, img.Filename))
	ct := img.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

// ParseForm reads a form submitted by the browser in major units, using the
// same field names WriteMultipart emits. Unparseable numbers are reported as
// validation errors; values are not otherwise checked, call Validate for that.
func ParseForm(values map[string][]string, image *Image) (Form, error) {
	get := func(key string) string {
		if v := values[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	f := Form{
		RestaurantName: get("restaurantName"),
		City:           get("city"),
		Country:        get("country"),
		Cuisines:       []string{},
		MenuItems:      []FormMenuItem{},
		ImageURL:       get("imageUrl"),
		ImageFile:      image,
	}

	var errs []error
	if s := get("deliveryPrice"); s != "" {
		d, err := money.ParseMajor(s)
		if err != nil {
			errs = append(errs, apperr.NewValidation("deliveryPrice", "Must be a valid number"))
		}
		f.DeliveryPrice = d
	}
	if s := get("estimatedDeliveryTime"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, apperr.NewValidation("estimatedDeliveryTime", "Must be a valid number"))
		}
		f.EstimatedDeliveryTime = n
	}

	for i := 0; ; i++ {
		v, ok := values[fmt.Sprintf("cuisines[%d]", i)]
		if !ok || len(v) == 0 {
			break
		}
		f.Cuisines = append(f.Cuisines, v[0])
	}
	for i := 0; ; i++ {
		nameKey := fmt.Sprintf("menuItems[%d][name]", i)
		priceKey := fmt.Sprintf("menuItems[%d][price]", i)
		_, hasName := values[nameKey]
		_, hasPrice := values[priceKey]
		if !hasName && !hasPrice {
			break
		}
		item := FormMenuItem{Name: get(nameKey)}
		if s := get(priceKey); s != "" {
			d, err := money.ParseMajor(s)
			if err != nil {
				errs = append(errs, apperr.NewValidation(priceKey, "Must be a valid number"))
			}
			item.Price = d
		}
		f.MenuItems = append(f.MenuItems, item)
	}

	return f, errors.Join(errs...)
}
