package xmlkit_test

import (
	"encoding/xml"

	"go.llib.dev/testcase/random"
)

var rnd = random.New(random.CryptoSeed{})

type Greeting struct {
	XMLName xml.Name `xml:"greeting"`
	Message string   `xml:"message"`
}

type Farewell struct {
	XMLName xml.Name `xml:"farewell"`
	Message string   `xml:"message"`
}

func randomGreetings(count int) []Greeting {
	vs := make([]Greeting, 0, count)
	for i := 0; i < count; i++ {
		vs = append(vs, Greeting{Message: rnd.String()})
	}
	return vs
}
