package chain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
)

func TestEvent_ParamAccessors(t *testing.T) {
	ev := Event{
		Name: "ChildMinted",
		Params: map[string]string{
			"to":         "0xABCD",
			"amount":     "5",
			"childId":    "0x7",
			"isPhysical": "true",
			"orderIds":   "1,2,3",
		},
	}

	assert.Equal(t, ids.Addr("0xabcd"), ev.Addr("to"))
	assert.Zero(t, big.NewInt(5).Cmp(ev.Big("amount")))
	assert.Zero(t, big.NewInt(7).Cmp(ev.Big("childId")))
	assert.True(t, ev.Bool("isPhysical"))
	assert.False(t, ev.Bool("missing"))

	orderIDs := ev.Uints("orderIds")
	assert.Len(t, orderIDs, 3)
	assert.Zero(t, big.NewInt(2).Cmp(orderIDs[1]))
}

func TestParseBig(t *testing.T) {
	assert.Zero(t, big.NewInt(0).Cmp(ParseBig("")))
	assert.Zero(t, big.NewInt(0).Cmp(ParseBig("not a number")))
	assert.Zero(t, big.NewInt(255).Cmp(ParseBig("0xff")))
	assert.Zero(t, big.NewInt(255).Cmp(ParseBig("255")))

	huge, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	assert.Zero(t, huge.Cmp(ParseBig(huge.String())))
}

func TestReverted(t *testing.T) {
	assert.True(t, Reverted(ErrReverted))
	assert.False(t, Reverted(nil))
	assert.False(t, Reverted(assert.AnError))
}
