package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	formpdf "github.com/lvillar/formpdf"
	"github.com/lvillar/formpdf/bundle"
	"github.com/lvillar/formpdf/formdoc"
	"github.com/lvillar/formpdf/forms"
	"github.com/lvillar/formpdf/xlsx"
)

// Content types of the downloads.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// fail maps err to a status: unknown forms are 404, bad input is 400 and
// anything else is 500.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, formpdf.ErrUnknownForm):
		status = http.StatusNotFound
	case errors.As(err, &maxErr):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, formpdf.ErrInvalidSpec),
		errors.Is(err, formpdf.ErrInvalidParam),
		errors.Is(err, formpdf.ErrSignatureImage),
		errors.Is(err, formpdf.ErrUnsupported),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error(), RequestID: c.GetString("request_id")})
}

var errBadRequest = errors.New("bad request")

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "forms": len(s.catalog.List())})
}

func (s *Server) listForms(c *gin.Context) {
	c.JSON(http.StatusOK, s.catalog.List())
}

func (s *Server) getForm(c *gin.Context) {
	spec, err := s.catalog.Get(c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, spec)
}

func (s *Server) template(c *gin.Context) {
	r, err := s.catalog.NewReport(c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// bindJSON decodes the body into v. An oversized body keeps its
// *http.MaxBytesError so fail answers 413; other decode errors are bad
// requests.
func bindJSON(c *gin.Context, v any, what string) error {
	err := c.ShouldBindJSON(v)
	if err == nil {
		return nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}
	return fmt.Errorf("%w: decoding %s: %v", errBadRequest, what, err)
}

// bindReport decodes the body and checks it belongs to the form in the path.
func (s *Server) bindReport(c *gin.Context) (formdoc.Report, error) {
	var r formdoc.Report
	if err := bindJSON(c, &r, "report"); err != nil {
		return r, err
	}
	slug := c.Param("slug")
	switch r.Form {
	case "":
		r.Form = slug
	case slug:
	default:
		return r, fmt.Errorf("%w: report is for form %q, not %q", errBadRequest, r.Form, slug)
	}
	return r, nil
}

// renderOptions applies the ?orientation= and ?draft= overrides.
func (s *Server) renderOptions(c *gin.Context) ([]formpdf.Option, error) {
	opts := append([]formpdf.Option(nil), s.opts...)
	if o := c.Query("orientation"); o != "" {
		orientation, err := formpdf.ParseOrientation(o)
		if err != nil {
			return nil, err
		}
		opts = append(opts, formpdf.WithOrientation(orientation))
	}
	if d := c.Query("draft"); d != "" {
		draft, err := strconv.ParseBool(d)
		if err != nil {
			return nil, fmt.Errorf("%w: draft %q", formpdf.ErrInvalidParam, d)
		}
		if draft {
			opts = append(opts, formpdf.WithDraftWatermark("BORRADOR"))
		}
	}
	return opts, nil
}

func attachment(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, data)
}

func (s *Server) renderPDF(c *gin.Context) {
	r, err := s.bindReport(c)
	if err != nil {
		fail(c, err)
		return
	}
	opts, err := s.renderOptions(c)
	if err != nil {
		fail(c, err)
		return
	}
	spec, prepared, err := s.catalog.Prepare(r)
	if err != nil {
		fail(c, err)
		return
	}
	data, err := formdoc.RenderBytes(spec, prepared, opts...)
	if err != nil {
		fail(c, err)
		return
	}
	attachment(c, forms.FileName(spec, prepared, ".pdf"), ContentTypePDF, data)
}

func (s *Server) exportXLSX(c *gin.Context) {
	r, err := s.bindReport(c)
	if err != nil {
		fail(c, err)
		return
	}
	spec, prepared, err := s.catalog.Prepare(r)
	if err != nil {
		fail(c, err)
		return
	}
	data, err := xlsx.Bytes(spec, prepared)
	if err != nil {
		fail(c, err)
		return
	}
	attachment(c, forms.FileName(spec, prepared, ".xlsx"), ContentTypeXLSX, data)
}

type bundleRequest struct {
	Name    string           `json:"name"`
	Reports []formdoc.Report `json:"reports"`
}

func (s *Server) bundle(c *gin.Context) {
	var req bundleRequest
	if err := bindJSON(c, &req, "bundle"); err != nil {
		fail(c, err)
		return
	}
	if len(req.Reports) == 0 {
		fail(c, fmt.Errorf("%w: no reports", errBadRequest))
		return
	}
	opts, err := s.renderOptions(c)
	if err != nil {
		fail(c, err)
		return
	}

	ctx := c.Request.Context()
	parts := make([]bundle.Part, 0, len(req.Reports))
	for i, r := range req.Reports {
		if err := ctx.Err(); err != nil {
			fail(c, err)
			return
		}
		data, err := s.catalog.RenderBytes(r, opts...)
		if err != nil {
			fail(c, fmt.Errorf("report %d: %w", i+1, err))
			return
		}
		parts = append(parts, bundle.Part{Name: fmt.Sprintf("%s #%d", r.Form, i+1), Data: data})
	}

	data, err := bundle.Bytes(parts...)
	if err != nil {
		fail(c, err)
		return
	}
	name := req.Name
	if name == "" {
		name = "bundle"
	}
	attachment(c, name+".pdf", ContentTypePDF, data)
}
