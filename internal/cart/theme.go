package cart

import (
	"context"

	"fsanano/food-market/internal/apperr"
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

// LoadTheme returns the stored theme, or ThemeSystem when nothing valid is stored.
func LoadTheme(ctx context.Context, store Storage, key string) (Theme, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if t := Theme(data); t.Valid() {
		return t, nil
	}
	return ThemeSystem, nil
}

func SaveTheme(ctx context.Context, store Storage, key string, t Theme) error {
	if !t.Valid() {
		return apperr.Invalid("theme", "must be one of light, dark, system")
	}
	return store.Set(ctx, key, []byte(t))
}
