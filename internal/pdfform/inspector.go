package pdfform

import (
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"
)

// Inspector enumerates the fillable fields of a PDF template. Each call
// re-opens the file, so the returned slice is always a fresh snapshot.
type Inspector struct {
	logger *zap.Logger
}

// NewInspector creates a template inspector.
func NewInspector(logger *zap.Logger) *Inspector {
	return &Inspector{logger: logger}
}

// Inspect opens the template and returns its fields in document order.
// A missing file maps to ErrTemplateNotFound; a PDF without an AcroForm
// structure maps to ErrNoFormFields.
func (in *Inspector) Inspect(templatePath string) ([]TemplateField, error) {
	f, err := os.Open(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templatePath)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	defer f.Close()

	fields, err := in.inspectReader(f)
	if err != nil {
		return nil, err
	}

	in.logger.Debug("Inspected template",
		zap.String("path", templatePath),
		zap.Int("field_count", len(fields)))

	return fields, nil
}

func (in *Inspector) inspectReader(rs io.ReadSeeker) ([]TemplateField, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	_, fieldDicts, err := acroForm(ctx)
	if err != nil {
		return nil, err
	}

	fields := make([]TemplateField, 0, len(fieldDicts))
	for i, d := range fieldDicts {
		field := readField(ctx, d, i)
		fields = append(fields, field)
	}

	if len(fields) == 0 {
		return nil, ErrNoFormFields
	}

	return fields, nil
}

// acroForm resolves Catalog -> AcroForm -> Fields, returning the AcroForm
// dictionary and the field dictionaries, skipping unresolvable entries.
func acroForm(ctx *model.Context) (types.Dict, []types.Dict, error) {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil, nil, ErrNoFormFields
	}

	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil || acroFormDict == nil {
		return nil, nil, ErrNoFormFields
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil, nil, ErrNoFormFields
	}

	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, nil, ErrNoFormFields
	}

	dicts := make([]types.Dict, 0, len(fieldsArray))
	for _, ref := range fieldsArray {
		d, err := ctx.DereferenceDict(ref)
		if err != nil || d == nil {
			continue
		}
		dicts = append(dicts, d)
	}

	return acroFormDict, dicts, nil
}

// readField builds a TemplateField snapshot from a field dictionary.
func readField(ctx *model.Context, fieldDict types.Dict, index int) TemplateField {
	field := TemplateField{Type: fieldType(ctx, fieldDict)}

	if nameObj, found := fieldDict.Find("T"); found {
		if name, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil {
			field.Name = name
		}
	}
	if field.Name == "" {
		field.Name = fmt.Sprintf("field_%d", index)
	}

	if valueObj, found := fieldDict.Find("V"); found {
		if val, err := ctx.DereferenceStringOrHexLiteral(valueObj, model.V10, nil); err == nil {
			field.Value = val
		}
	}

	if rect, ok := fieldRect(ctx, fieldDict); ok {
		field.Rect = rect
		field.HasRect = true
	}

	return field
}

// fieldType determines the field type from the FT entry, following the
// Parent chain for inherited types.
func fieldType(ctx *model.Context, fieldDict types.Dict) FieldType {
	ftObj, found := fieldDict.Find("FT")
	if !found {
		if parentObj, found := fieldDict.Find("Parent"); found {
			if parentDict, err := ctx.DereferenceDict(parentObj); err == nil && parentDict != nil {
				return fieldType(ctx, parentDict)
			}
		}
		return FieldTypeUnknown
	}

	ftName, err := ctx.DereferenceName(ftObj, model.V10, nil)
	if err != nil {
		return FieldTypeUnknown
	}

	switch ftName {
	case "Tx":
		return FieldTypeText
	case "Ch":
		return FieldTypeChoice
	case "Sig":
		return FieldTypeSignature
	case "Btn":
		if flagsObj, found := fieldDict.Find("Ff"); found {
			if flags, err := ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
				if (*flags & (1 << 15)) != 0 {
					return FieldTypeRadio
				}
				if (*flags & (1 << 16)) != 0 {
					return FieldTypeButton
				}
			}
		}
		return FieldTypeCheckbox
	default:
		return FieldTypeUnknown
	}
}

// fieldRect extracts the widget rectangle, looking at the field itself first
// and falling back to the first Kid widget annotation.
func fieldRect(ctx *model.Context, fieldDict types.Dict) (Rect, bool) {
	if rectObj, found := fieldDict.Find("Rect"); found {
		if rect, ok := parseRect(ctx, rectObj); ok {
			return rect, true
		}
	}

	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kidsArray, err := ctx.DereferenceArray(kidsObj); err == nil && len(kidsArray) > 0 {
			if widgetDict, err := ctx.DereferenceDict(kidsArray[0]); err == nil && widgetDict != nil {
				if rectObj, found := widgetDict.Find("Rect"); found {
					if rect, ok := parseRect(ctx, rectObj); ok {
						return rect, true
					}
				}
			}
		}
	}

	return Rect{}, false
}

func parseRect(ctx *model.Context, rectObj types.Object) (Rect, bool) {
	rectArray, err := ctx.DereferenceArray(rectObj)
	if err != nil || len(rectArray) != 4 {
		return Rect{}, false
	}

	coords := make([]float64, 4)
	for i, coord := range rectArray {
		f, err := ctx.DereferenceNumber(coord)
		if err != nil {
			return Rect{}, false
		}
		coords[i] = f
	}

	return Rect{LLX: coords[0], LLY: coords[1], URX: coords[2], URY: coords[3]}, true
}
