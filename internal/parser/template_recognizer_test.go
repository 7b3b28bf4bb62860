package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecognize_StandardTemplate(t *testing.T) {
	t.Parallel()

	r := NewTemplateRecognizer()
	res := r.Recognize([]string{"N° SERIE", "MARQUE", "MODELE ou DESCRIPTION", "TYPE MATERIEL", "DATE ENTREE", "PRIX ACHAT HT"})
	assert.Equal(t, TemplateStandard, res.Template)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)
	assert.Empty(t, res.Unmapped)
	assert.Contains(t, res.Matched, FieldPurchasePriceHT)
}

func TestRecognize_LegacyTemplate(t *testing.T) {
	t.Parallel()

	r := NewTemplateRecognizer()
	res := r.Recognize([]string{"n° de série", "MARQUE", "MODELE", "TYPE DE MATERIEL", "COULEUR"})
	assert.Equal(t, TemplateLegacy, res.Template)
	assert.InDelta(t, 0.75, res.Confidence, 1e-9)
	assert.Equal(t, []string{"COULEUR"}, res.Unmapped)
}

func TestRecognize_CanonicalAndUnknown(t *testing.T) {
	t.Parallel()

	r := NewTemplateRecognizer()
	res := r.Recognize([]string{"serialNumber", "brand", "model", "equipmentType"})
	assert.Equal(t, TemplateCanonical, res.Template)

	res = r.Recognize([]string{"foo", "bar"})
	assert.Equal(t, TemplateUnknown, res.Template)
	assert.Zero(t, res.Confidence)
	assert.Empty(t, res.Matched)
}
