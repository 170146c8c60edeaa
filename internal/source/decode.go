package source

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"carlist/internal/domain"
)

var (
	errNotArray  = errors.New("response is not a JSON array")
	errNotObject = errors.New("collection element is not a JSON object")
	errMissingID = errors.New("collection element has no id")
)

// DecodeCollection parses a JSON array of listing records.
// Attributes other than id and model are kept in order as raw JSON.
func DecodeCollection(body []byte) ([]domain.Item, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("response is not valid JSON")
	}

	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, errNotArray
	}

	elements := root.Array()
	items := make([]domain.Item, 0, len(elements))
	for i, el := range elements {
		item, err := decodeItem(el)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeItem(el gjson.Result) (domain.Item, error) {
	if !el.IsObject() {
		return domain.Item{}, errNotObject
	}

	item := domain.Item{Raw: el.Raw}
	hasID := false

	el.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "id":
			if value.Type == gjson.Null {
				return true
			}
			hasID = true
			item.ID = value.String()
		case "model":
			item.Model = value.String()
		default:
			item.Extra = append(item.Extra, domain.Field{Key: key.String(), Value: value.Raw})
		}
		return true
	})

	if !hasID || item.ID == "" {
		return domain.Item{}, errMissingID
	}
	return item, nil
}
