package events

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeplant/web/internal/validation"
)

func validForm() EventForm {
	return EventForm{
		EventName:   "Monsoon Drive",
		Description: "Planting native saplings along the river bank.",
		Date:        "2024-02-01",
		Time:        "08:30",
		MaxCapacity: 50,
		Location:    "Riverside Park, Gate 2",
		City:        "Pune",
		Target:      200,
		Trees:       "Neem, Peepal , ,Banyan",
	}
}

func newValidator() *validation.Validator {
	return validation.New(func() time.Time { return time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC) })
}

func TestEventFormValidation(t *testing.T) {
	f := validForm()
	assert.Nil(t, f.Validate(newValidator()))

	bad := EventForm{EventName: " Tree ", Description: "short", Date: "2024-01-19", MaxCapacity: 10001, Location: "Park", Target: -1, Trees: " , "}
	fields := bad.Validate(newValidator())
	assert.Equal(t, "Event name must be at least 5 characters", fields["event_name"])
	assert.Equal(t, "Description must be at least 20 characters", fields["description"])
	assert.Equal(t, "Event date cannot be in the past", fields["date"])
	assert.Equal(t, "Event time is required", fields["time"])
	assert.Equal(t, "Capacity cannot exceed 10,000", fields["max_capacity"])
	assert.Equal(t, "Please provide a detailed location", fields["location"])
	assert.Equal(t, "City is required", fields["city"])
	assert.Equal(t, "Target trees must be at least 1", fields["target"])
	assert.Equal(t, "Tree types are required", fields["trees"])
}

func TestTreeList(t *testing.T) {
	assert.Equal(t, []string{"Neem", "Peepal", "Banyan"}, validForm().TreeList())
}

func TestUpdateBodyJSONWithoutImage(t *testing.T) {
	body, err := validForm().UpdateBody(nil)
	require.NoError(t, err)
	r, ct, err := body.Encode()
	require.NoError(t, err)
	assert.Equal(t, "application/json", ct)

	var got map[string]interface{}
	raw, _ := io.ReadAll(r)
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, float64(50), got["max_capacity"])
	assert.Equal(t, float64(200), got["target"])
	assert.Equal(t, []interface{}{"Neem", "Peepal", "Banyan"}, got["trees"])
	v, present := got["event_picture"]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestUpdateBodyMultipartWithImage(t *testing.T) {
	body, err := validForm().UpdateBody(&Image{Filename: "e.png", ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	r, ct, err := body.Encode()
	require.NoError(t, err)

	_, params, err := mime.ParseMediaType(ct)
	require.NoError(t, err)
	form, err := multipart.NewReader(r, params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)
	assert.Equal(t, `["Neem","Peepal","Banyan"]`, form.Value["trees"][0])
	assert.Equal(t, "50", form.Value["max_capacity"][0])
	require.Len(t, form.File["event_picture"], 1)
	assert.Equal(t, "e.png", form.File["event_picture"][0].Filename)
}
