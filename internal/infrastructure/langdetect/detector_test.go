package langdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	englishText = "The castle was built in the twelfth century and served as the residence of the dukes for many generations before it became a museum."
	polishText  = "Zamek został zbudowany w dwunastym wieku i przez wiele pokoleń służył jako rezydencja książąt, zanim stał się muzeum."
)

func TestDetect(t *testing.T) {
	d := NewDetector(0.1)

	assert.Equal(t, "en", d.Detect(englishText))
	assert.Equal(t, "pl", d.Detect(polishText))
	assert.Equal(t, "", d.Detect("   "))
}

func TestDetect_AllowedLanguages(t *testing.T) {
	d := NewDetector(0.1, "pl")

	assert.Equal(t, "", d.Detect(englishText))
	assert.Equal(t, "pl", d.Detect(polishText))
}

func TestDetect_LazyInit(t *testing.T) {
	d := NewDetector(0)
	assert.Nil(t, d.detectFun)

	d.Detect(englishText)
	assert.NotNil(t, d.detectFun)
}
