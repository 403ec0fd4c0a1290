package routes

import (
	"context"
	"testing"

	"github.com/opscinema/cinectl/internal/rpc"
	"github.com/opscinema/cinectl/internal/testutil"
	"github.com/opscinema/cinectl/internal/uistate"
)

func TestRouteValid(t *testing.T) {
	for _, r := range All {
		if !r.Valid() {
			t.Errorf("Route(%q).Valid() = false", r)
		}
	}
	if Route("dashboard").Valid() {
		t.Error(`Route("dashboard").Valid() = true`)
	}
}

func TestLoadRecordsActiveRoute(t *testing.T) {
	inv := testutil.NewFakeInvoker()
	inv.Respond(rpc.OpAppGetPermissionsStatus, rpc.PermissionsStatus{ScreenRecording: true})
	inv.Respond(rpc.OpSettingsGet, rpc.Settings{OfflineMode: true})

	store := uistate.New()
	loader := NewLoader(inv, store)

	view, err := loader.Load(context.Background(), RoutePermissions)
	if err != nil {
		t.Fatal(err)
	}
	pv, ok := view.(*PermissionsView)
	if !ok {
		t.Fatalf("view type %T", view)
	}
	if !pv.Permissions.ScreenRecording || !pv.Settings.OfflineMode {
		t.Errorf("view = %+v", pv)
	}
	if got := store.GetState().ActiveRoute; got != "permissions" {
		t.Errorf("active route = %q", got)
	}
}

func TestLoadUnknownRoute(t *testing.T) {
	loader := NewLoader(testutil.NewFakeInvoker(), uistate.New())
	if _, err := loader.Load(context.Background(), Route("bogus")); err == nil {
		t.Fatal("unknown route accepted")
	}
}

func TestSessionScopedRoutesWithoutSession(t *testing.T) {
	// No backend calls may happen for session-scoped data when no session
	// is active; an empty fake makes any call fail the test via NOT_FOUND.
	inv := testutil.NewFakeInvoker()
	loader := NewLoader(inv, uistate.New())

	for _, route := range []Route{RouteEvidence, RouteSteps, RouteProofLedger} {
		view, err := loader.Load(context.Background(), route)
		if err != nil {
			t.Errorf("Load(%s) without session: %v", route, err)
			continue
		}
		if view == nil {
			t.Errorf("Load(%s) returned nil view", route)
		}
	}

	anchors, err := loader.Load(context.Background(), RouteAnchors)
	if err != nil {
		t.Fatal(err)
	}
	if av := anchors.(*AnchorsView); len(av.StepAnchors) != 0 {
		t.Errorf("anchors view = %+v", av)
	}
}

func TestLoadStepsCachesHeadSeq(t *testing.T) {
	inv := testutil.NewFakeInvoker()
	inv.Respond(rpc.OpStepsList, rpc.StepsListResult{
		Steps:   []rpc.Step{{StepID: "st-1", Title: "Open the app"}},
		HeadSeq: 42,
	})

	store := uistate.New()
	store.SetActiveSession("s-1")
	loader := NewLoader(inv, store)

	view, err := loader.Load(context.Background(), RouteSteps)
	if err != nil {
		t.Fatal(err)
	}
	sv := view.(*StepsView)
	if sv.HeadSeq != 42 || len(sv.Steps) != 1 {
		t.Errorf("view = %+v", sv)
	}
	if got := store.GetState().SessionHeadSeq["s-1"]; got != 42 {
		t.Errorf("cached head_seq = %d, want 42", got)
	}
}

func TestLoadAnchorsPerStep(t *testing.T) {
	inv := testutil.NewFakeInvoker()
	inv.Respond(rpc.OpStepsList, rpc.StepsListResult{
		Steps:   []rpc.Step{{StepID: "st-1"}, {StepID: "st-2"}},
		HeadSeq: 3,
	})
	inv.Respond(rpc.OpAnchorsListForStep, rpc.AnchorsListResult{
		Anchors: []rpc.AnchorCandidate{{AnchorID: "a-1", Kind: "text", Confidence: 0.9}},
	})

	store := uistate.New()
	store.SetActiveSession("s-1")

	view, err := NewLoader(inv, store).Load(context.Background(), RouteAnchors)
	if err != nil {
		t.Fatal(err)
	}
	av := view.(*AnchorsView)
	if len(av.StepAnchors) != 2 {
		t.Fatalf("anchors for %d steps, want 2", len(av.StepAnchors))
	}

	listed := 0
	for _, op := range inv.Operations() {
		if op == rpc.OpAnchorsListForStep {
			listed++
		}
	}
	if listed != 2 {
		t.Errorf("anchors_list_for_step called %d times, want 2", listed)
	}
}

func TestLoadModelDock(t *testing.T) {
	inv := testutil.NewFakeInvoker()
	inv.Respond(rpc.OpModelsList, rpc.ModelsListResult{
		Models: []rpc.Model{{ModelID: "m-1", Provider: "ollama", Label: "llama3"}},
	})
	inv.Respond(rpc.OpModelRolesGet, rpc.ModelRoles{TutorialGeneration: "m-1"})

	view, err := NewLoader(inv, uistate.New()).Load(context.Background(), RouteModelDock)
	if err != nil {
		t.Fatal(err)
	}
	mv := view.(*ModelDockView)
	if len(mv.Models) != 1 || mv.Roles.TutorialGeneration != "m-1" {
		t.Errorf("view = %+v", mv)
	}
}
