package handlers

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain/chaintest"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/metadata"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/store"
)

const (
	childAddr      = "0xaaa0000000000000000000000000000000000001"
	templateAddr   = "0xaaa0000000000000000000000000000000000002"
	parentAddr     = "0xbbb0000000000000000000000000000000000001"
	marketAddr     = "0xccc0000000000000000000000000000000000001"
	fulfillAddr    = "0xccc0000000000000000000000000000000000002"
	futuresAddr    = "0xddd0000000000000000000000000000000000001"
	escrowAddr     = "0xddd0000000000000000000000000000000000002"
	tradingAddr    = "0xddd0000000000000000000000000000000000003"
	settlementAddr = "0xddd0000000000000000000000000000000000004"
	registryAddr   = "0xeee0000000000000000000000000000000000001"

	buyerAddr  = "0x1110000000000000000000000000000000000001"
	holderAddr = "0x1110000000000000000000000000000000000002"
	botAddr    = "0x2220000000000000000000000000000000000001"
)

func newTestHandlers(t *testing.T) (*Handlers, *store.Memory, *chaintest.Oracle) {
	t.Helper()
	st := store.NewMemory()
	oracle := chaintest.NewOracle()
	h := New(st, oracle, metadata.NewRegistry(st))
	h.RegisterSource(ids.Addr(childAddr), chain.SourceContext{InfraID: big.NewInt(1)})
	h.RegisterSource(ids.Addr(templateAddr), chain.SourceContext{InfraID: big.NewInt(1), IsTemplate: true})
	h.RegisterSource(ids.Addr(parentAddr), chain.SourceContext{InfraID: big.NewInt(1)})
	h.RegisterSource(ids.Addr(registryAddr), chain.SourceContext{InfraID: big.NewInt(1)})
	return h, st, oracle
}

var testLogIndex uint32

// testEvent builds one decoded log with a unique (tx, logIndex) so
// event-keyed records from different calls never collide.
func testEvent(name, addr string, params map[string]string) chain.Event {
	testLogIndex++
	return chain.Event{
		Name:           name,
		Address:        ids.Addr(addr),
		BlockNumber:    100,
		BlockTimestamp: big.NewInt(1_700_000_000),
		TxHash:         fmt.Sprintf("0xt%08d", testLogIndex),
		LogIndex:       testLogIndex,
		Params:         params,
	}
}

func mustDispatch(t *testing.T, h *Handlers, ev chain.Event) {
	t.Helper()
	require.NoError(t, h.Dispatch(ev))
}

func loadRights(t *testing.T, st store.Store, key ids.Key) (*entities.PhysicalRights, bool) {
	t.Helper()
	e, ok, err := st.Load(entities.KindPhysicalRights, key)
	require.NoError(t, err)
	if !ok {
		return nil, false
	}
	return e.(*entities.PhysicalRights), true
}

func TestDispatchUnknownEventIsSkipped(t *testing.T) {
	h, st, _ := newTestHandlers(t)
	mustDispatch(t, h, testEvent("SomethingNobodyKnows", childAddr, nil))
	require.Zero(t, st.Count())
}

func TestFactoryDeploymentRegistersTemplateContext(t *testing.T) {
	h, st, oracle := newTestHandlers(t)

	addr := "0xaaa0000000000000000000000000000000000099"
	mustDispatch(t, h, testEvent("TemplateContractDeployed", registryAddr, map[string]string{
		"templateContract": addr,
		"infraId":          "7",
	}))

	oracle.Children[ids.Child(ids.Addr(addr), big.NewInt(1))] = chain.ChildMetadata{URI: "ipfs://QmT"}
	oracle.Placements[ids.Child(ids.Addr(addr), big.NewInt(1))] = nil
	mustDispatch(t, h, testEvent("ChildCreated", addr, map[string]string{"childId": "1"}))

	e, ok, err := st.Load(entities.KindChild, ids.Child(ids.Addr(addr), big.NewInt(1)))
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, e.(*entities.Child).IsTemplate)
}
