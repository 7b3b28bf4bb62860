package parser

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmate/internal/model"
)

func TestNormalizeDate_TwoDigitYearPivot(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"15/01/25":   "2025-01-15",
		"15/01/78":   "1978-01-15",
		"17/01/22":   "2022-01-17",
		"01/12/49":   "2049-12-01",
		"01/12/50":   "1950-12-01",
		"5/3/2021":   "2021-03-05",
		"31/12/2023": "2023-12-31",
		"2024-03-15": "2024-03-15",
	}
	for in, want := range cases {
		got := NormalizeDate(in)
		require.NotNil(t, got, in)
		assert.Equal(t, want, *got, in)
	}
}

func TestNormalizeDate_UnrecognizedIsNil(t *testing.T) {
	t.Parallel()

	for _, in := range []any{nil, "", "   ", "abc", "2024", "31/02/2024", "1/2", "12/13/2020", "15-01-2025", true} {
		assert.Nil(t, NormalizeDate(in), "%v", in)
	}
}

func TestNormalizeDate_ExcelSerial(t *testing.T) {
	t.Parallel()

	got := NormalizeDate(float64(44578))
	require.NotNil(t, got)
	assert.Equal(t, "2022-01-17", *got)

	// 时间部分被忽略
	got = NormalizeDate(44578.75)
	require.NotNil(t, got)
	assert.Equal(t, "2022-01-17", *got)

	got = NormalizeDate(25569)
	require.NotNil(t, got)
	assert.Equal(t, "1970-01-01", *got)

	assert.Nil(t, NormalizeDate(1e12))
}

func TestNormalizeEquipmentType_TotalAndIdempotent(t *testing.T) {
	t.Parallel()

	cases := map[any]model.EquipmentType{
		"Imprimante":         model.EquipmentPrinter,
		"PC PORTABLE":        model.EquipmentLaptop,
		"Ecran":              model.EquipmentMonitor,
		"écran PC":           model.EquipmentMonitor,
		"Téléphone":          model.EquipmentPhone,
		"station d’accueil":  model.EquipmentDockingStation,
		"Vidéo-projecteur":   model.EquipmentProjector,
		"disque_dur":         model.EquipmentStorage,
		"something unknown":  model.EquipmentLaptop,
		"":                   model.EquipmentLaptop,
		nil:                  model.EquipmentLaptop,
		float64(3):           model.EquipmentLaptop,
		"  materiel_reseau ": model.EquipmentNetwork,
	}
	for in, want := range cases {
		got := NormalizeEquipmentType(in)
		assert.Equal(t, want, got, "%v", in)
		assert.True(t, got.Valid())
	}

	for _, typ := range model.EquipmentTypes {
		assert.Equal(t, typ, NormalizeEquipmentType(string(typ)))
	}
}

func TestNormalizeBoolean(t *testing.T) {
	t.Parallel()

	for _, in := range []any{true, 1.0, 1, "true", "TRUE", "1", "oui", " Oui "} {
		assert.True(t, NormalizeBoolean(in), "%v", in)
	}
	for _, in := range []any{false, 0.0, nil, "", "NaN", "non", "false", "yes?"} {
		assert.False(t, NormalizeBoolean(in), "%v", in)
	}
}

func TestNormalizePrice(t *testing.T) {
	t.Parallel()

	cases := map[any]float64{
		"329.00":      329,
		"329,50":      329.5,
		"1 234,56 €":  1234.56,
		"1,234.56":    1234.56,
		"1.234,56":    1234.56,
		float64(12.5): 12.5,
		"0":           0,
	}
	for in, want := range cases {
		got := NormalizePrice(in)
		require.NotNil(t, got, "%v", in)
		assert.InDelta(t, want, *got, 1e-9, "%v", in)
	}

	for _, in := range []any{nil, "", "NaN", "abc", "-5", true} {
		assert.Nil(t, NormalizePrice(in), "%v", in)
	}
}

func TestNormalizeDuration(t *testing.T) {
	t.Parallel()

	got := NormalizeDuration("36")
	require.NotNil(t, got)
	assert.Equal(t, 36, *got)

	got = NormalizeDuration(float64(24.9))
	require.NotNil(t, got)
	assert.Equal(t, 24, *got)

	// "0" 表示不适用
	assert.Nil(t, NormalizeDuration("0"))
	assert.Nil(t, NormalizeDuration(float64(0)))
	assert.Nil(t, NormalizeDuration("-3"))
	assert.Nil(t, NormalizeDuration("trois"))
	assert.Nil(t, NormalizeDuration(nil))
}

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "CANON", NormalizeText("  CANON "))
	assert.Equal(t, "", NormalizeText("NaN"))
	assert.Equal(t, "", NormalizeText("undefined"))
	assert.Equal(t, "", NormalizeText(nil))
	assert.Equal(t, "12345", NormalizeText(float64(12345)))
	assert.Nil(t, NormalizeOptionalText("null"))
}

func TestNormalizeStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.StatusInStock, NormalizeStatus(nil))
	assert.Equal(t, model.StatusRepair, NormalizeStatus("sav"))
	assert.Equal(t, model.StatusInUse, NormalizeStatus("En utilisation"))
	assert.Equal(t, model.StatusBroken, NormalizeStatus("Hors service"))
	assert.Equal(t, model.StatusInStock, NormalizeStatus("???"))
}

func TestNormalizeColumnName(t *testing.T) {
	t.Parallel()

	want := NormalizeColumnName("N° DE SERIE")
	for _, in := range []string{"n° de série", "N°DE SERIE", "\ufeffN° DE  SERIE", " N° de Serie "} {
		assert.Equal(t, want, NormalizeColumnName(in), in)
	}
}

func TestNormalize_JSONNumber(t *testing.T) {
	t.Parallel()

	got := NormalizeDate(json.Number("44578"))
	require.NotNil(t, got)
	assert.Equal(t, "2022-01-17", *got)
	assert.Nil(t, NormalizeDate(json.Number("1e999")))

	assert.True(t, NormalizeBoolean(json.Number("1")))
	assert.False(t, NormalizeBoolean(json.Number("0")))
	assert.Equal(t, "12345678901234567", NormalizeText(json.Number("12345678901234567")))

	price := NormalizePrice(json.Number("329.5"))
	require.NotNil(t, price)
	assert.InDelta(t, 329.5, *price, 1e-9)
}
