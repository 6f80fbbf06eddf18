package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerDragRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "beginDrag",
		Method:        http.MethodPost,
		Path:          "/api/v1/drags",
		Summary:       "Begin drag",
		Description:   "Starts reordering one book among the visible books",
		Tags:          []string{"Reorder"},
		DefaultStatus: http.StatusCreated,
	}, s.handleBeginDrag)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateDrag",
		Method:      http.MethodPatch,
		Path:        "/api/v1/drags/{id}",
		Summary:     "Update drag",
		Description: "Moves the dragged book before or after a target. Nothing is saved",
		Tags:        []string{"Reorder"},
	}, s.handleUpdateDrag)

	huma.Register(s.api, huma.Operation{
		OperationID: "dropDrag",
		Method:      http.MethodPost,
		Path:        "/api/v1/drags/{id}/drop",
		Summary:     "Drop",
		Description: "Commits the new order when the target is valid, otherwise discards it",
		Tags:        []string{"Reorder"},
	}, s.handleDropDrag)

	huma.Register(s.api, huma.Operation{
		OperationID:   "cancelDrag",
		Method:        http.MethodDelete,
		Path:          "/api/v1/drags/{id}",
		Summary:       "Cancel drag",
		Tags:          []string{"Reorder"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleCancelDrag)
}

// === DTOs ===

// BeginDragInput names the visible rows and the book being moved.
type BeginDragInput struct {
	Body struct {
		Visible []int64 `json:"visible" doc:"Ids of the rows currently shown, in display order"`
		Moving  int64   `json:"moving" doc:"Id of the book being dragged"`
	}
}

// DragResponse is the state of a drag.
type DragResponse struct {
	ID     string  `json:"id"`
	Moving int64   `json:"moving"`
	Order  []int64 `json:"order" doc:"Provisional visible order"`
}

// DragOutput wraps a drag.
type DragOutput struct {
	Body DragResponse
}

// UpdateDragInput places the dragged book relative to a target. With a
// width the pointer offset picks the side; otherwise After does.
type UpdateDragInput struct {
	ID   string `path:"id"`
	Body struct {
		Target int64   `json:"target"`
		Offset float64 `json:"offset,omitempty" doc:"Pointer offset within the target"`
		Width  float64 `json:"width,omitempty" doc:"Target extent along the drag axis"`
		After  bool    `json:"after,omitempty" doc:"Place after the target when no width is given"`
	}
}

// DropDragInput names the drop target.
type DropDragInput struct {
	ID   string `path:"id"`
	Body struct {
		Target int64 `json:"target"`
	}
}

// DropResponse reports the outcome of a drop.
type DropResponse struct {
	Committed bool    `json:"committed"`
	Order     []int64 `json:"order,omitempty" doc:"Library order after the commit"`
}

// DropOutput wraps the drop result.
type DropOutput struct {
	Body DropResponse
}

// DragIDInput identifies a drag.
type DragIDInput struct {
	ID string `path:"id"`
}

// === Handlers ===

func (s *Server) handleBeginDrag(_ context.Context, input *BeginDragInput) (*DragOutput, error) {
	session, err := s.services.Drags.Begin(input.Body.Visible, input.Body.Moving)
	if err != nil {
		return nil, err
	}
	return &DragOutput{Body: DragResponse{ID: session.ID, Moving: session.Moving, Order: session.Order()}}, nil
}

func (s *Server) handleUpdateDrag(_ context.Context, input *UpdateDragInput) (*DragOutput, error) {
	session, err := s.services.Drags.Session(input.ID)
	if err != nil {
		return nil, err
	}

	var order []int64
	if input.Body.Width > 0 {
		order = session.Over(input.Body.Target, input.Body.Offset, input.Body.Width)
	} else {
		order = session.Move(input.Body.Target, input.Body.After)
	}
	return &DragOutput{Body: DragResponse{ID: session.ID, Moving: session.Moving, Order: order}}, nil
}

func (s *Server) handleDropDrag(ctx context.Context, input *DropDragInput) (*DropOutput, error) {
	order, committed, err := s.services.Drags.Drop(ctx, input.ID, input.Body.Target)
	if err != nil {
		return nil, err
	}
	return &DropOutput{Body: DropResponse{Committed: committed, Order: order}}, nil
}

func (s *Server) handleCancelDrag(_ context.Context, input *DragIDInput) (*struct{}, error) {
	if err := s.services.Drags.Cancel(input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
