package endpoint

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/TurahWilson/TubesIAE/dashboard"
	"github.com/TurahWilson/TubesIAE/util"
	"github.com/gin-gonic/gin"
)

// Page godoc
// @Summary      Activate a page
// @Description  Loads the rows of an entity page and the summary counts
// @Tags         Dashboard
// @Produce      html,json
// @Param        page path string true "dashboard, patients, doctors, records or prescriptions"
// @Success      200 {object} util.APIResponse{data=dashboard.PageView}
// @Failure      404 {object} util.APIResponse
// @Failure      502 {object} util.APIResponse
// @Router       /{page} [get]
func (h *Handler) Page(c *gin.Context) {
	sess := currentSession(c)
	page := c.Param("page")

	view, err := h.router.Activate(c.Request.Context(), sess, page)
	if errors.Is(err, dashboard.ErrUnknownPage) {
		notFound(c)
		return
	}
	if err != nil {
		logTransportFailure(c, sess, "load "+page, err)
		view.Alert = alertFor(err)
		respond(c, http.StatusBadGateway, "page.html", view, view.Alert, err)
		return
	}
	respond(c, http.StatusOK, "page.html", view, view.Title+" loaded", nil)
}

// Create godoc
// @Summary      Create an entity
// @Description  Binds the add form and posts it to the remote collection
// @Tags         Dashboard
// @Accept       x-www-form-urlencoded,json
// @Produce      html,json
// @Param        page path string true "patients, doctors, records or prescriptions"
// @Success      303
// @Success      200 {object} util.APIResponse{data=dashboard.Row}
// @Failure      400 {object} util.APIResponse
// @Failure      502 {object} util.APIResponse
// @Router       /{page} [post]
func (h *Handler) Create(c *gin.Context) {
	panel, _, ok := h.panelFor(c, false)
	if !ok {
		return
	}
	sess := currentSession(c)

	row, err := panel.CreateFrom(c.Request.Context(), sess, c.ShouldBind)
	if err != nil {
		h.failPage(c, sess, panel.Name(), "create "+panel.Name(), err)
		return
	}
	redirectOr(c, "/"+panel.Name(), panel.Title()+" created", row)
}

// View godoc
// @Summary      View an entity
// @Tags         Dashboard
// @Produce      html,json
// @Param        page path string true "patients, doctors, records or prescriptions"
// @Param        id path int true "Entity ID"
// @Success      200 {object} util.APIResponse{data=dashboard.Detail}
// @Failure      404 {object} util.APIResponse
// @Failure      502 {object} util.APIResponse
// @Router       /{page}/{id} [get]
func (h *Handler) View(c *gin.Context) {
	panel, id, ok := h.panelFor(c, true)
	if !ok {
		return
	}
	sess := currentSession(c)

	detail, err := panel.View(c.Request.Context(), sess, id)
	if err != nil {
		h.failPage(c, sess, panel.Name(), "view "+panel.Name()+" "+strconv.Itoa(id), err)
		return
	}
	view := detailView{Page: h.router.Shell(sess, panel.Name()), Detail: detail}
	if util.WantsJSON(c) {
		util.CallSuccessOK(c, util.APISuccessParams{Msg: detail.Title + " loaded", Data: detail})
		return
	}
	c.HTML(http.StatusOK, "detail.html", view)
}

// EditForm godoc
// @Summary      Edit form for an entity
// @Description  Fetches the entity and returns its form filled with the current values
// @Tags         Dashboard
// @Produce      html,json
// @Param        page path string true "patients, doctors, records or prescriptions"
// @Param        id path int true "Entity ID"
// @Success      200 {object} util.APIResponse{data=[]dashboard.FormField}
// @Failure      404 {object} util.APIResponse
// @Failure      502 {object} util.APIResponse
// @Router       /{page}/{id}/edit [get]
func (h *Handler) EditForm(c *gin.Context) {
	panel, id, ok := h.panelFor(c, true)
	if !ok {
		return
	}
	sess := currentSession(c)

	fields, err := panel.EditForm(c.Request.Context(), sess, id)
	if err != nil {
		h.failPage(c, sess, panel.Name(), "edit "+panel.Name()+" "+strconv.Itoa(id), err)
		return
	}
	view := editView{Page: h.router.Shell(sess, panel.Name()), ID: id, Fields: fields}
	respond(c, http.StatusOK, "edit.html", view, "Edit "+panel.Title(), nil)
}

// Update godoc
// @Summary      Update an entity
// @Description  Binds the edit form and replaces the entity on the remote collection
// @Tags         Dashboard
// @Accept       x-www-form-urlencoded,json
// @Produce      html,json
// @Param        page path string true "patients, doctors, records or prescriptions"
// @Param        id path int true "Entity ID"
// @Success      303
// @Success      200 {object} util.APIResponse{data=dashboard.Row}
// @Failure      400 {object} util.APIResponse
// @Failure      404 {object} util.APIResponse
// @Failure      502 {object} util.APIResponse
// @Router       /{page}/{id}/edit [post]
func (h *Handler) Update(c *gin.Context) {
	panel, id, ok := h.panelFor(c, true)
	if !ok {
		return
	}
	sess := currentSession(c)

	row, err := panel.UpdateFrom(c.Request.Context(), sess, id, c.ShouldBind)
	if err != nil {
		h.failPage(c, sess, panel.Name(), "update "+panel.Name()+" "+strconv.Itoa(id), err)
		return
	}
	redirectOr(c, "/"+panel.Name(), panel.Title()+" updated", row)
}

// ConfirmDelete asks the user to confirm a delete before it is sent.
func (h *Handler) ConfirmDelete(c *gin.Context) {
	panel, id, ok := h.panelFor(c, true)
	if !ok {
		return
	}
	view := confirmView{Page: h.router.Shell(currentSession(c), panel.Name()), ID: id}
	respond(c, http.StatusOK, "confirm.html", view, "Confirm delete", nil)
}

// Delete godoc
// @Summary      Delete an entity
// @Tags         Dashboard
// @Produce      html,json
// @Param        page path string true "patients, doctors, records or prescriptions"
// @Param        id path int true "Entity ID"
// @Success      303
// @Success      200 {object} util.APIResponse
// @Failure      404 {object} util.APIResponse
// @Failure      502 {object} util.APIResponse
// @Router       /{page}/{id}/delete [post]
func (h *Handler) Delete(c *gin.Context) {
	panel, id, ok := h.panelFor(c, true)
	if !ok {
		return
	}
	sess := currentSession(c)

	if err := panel.Delete(c.Request.Context(), sess, id); err != nil {
		h.failPage(c, sess, panel.Name(), "delete "+panel.Name()+" "+strconv.Itoa(id), err)
		return
	}
	redirectOr(c, "/"+panel.Name(), panel.Title()+" deleted", map[string]int{"id": id})
}
