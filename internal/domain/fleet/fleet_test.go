package fleet

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalanria/service-rental/internal/common/domain"
)

func TestNewVehicle(t *testing.T) {
	v, err := NewVehicle("  b 1234  xyz ", "Toyota Alphard", "MPV", 6, 2023, "black", "")
	require.NoError(t, err)

	assert.Equal(t, "B 1234 XYZ", v.PlateNumber())
	assert.Equal(t, VehicleAvailable, v.Status())
	assert.False(t, v.IsBookable(), "no driver yet")

	require.NoError(t, v.AssignDriver(uuid.New()))
	assert.True(t, v.IsBookable())
}

func TestNewVehicle_Validation(t *testing.T) {
	var validation *domain.ValidationError

	_, err := NewVehicle("", "Avanza", "MPV", 6, 2020, "", "")
	assert.ErrorAs(t, err, &validation)

	_, err = NewVehicle("B 1 A", "Avanza", "MPV", 0, 2020, "", "")
	assert.ErrorAs(t, err, &validation)

	_, err = NewVehicle("B 1 A", "Avanza", "MPV", 6, 1950, "", "")
	assert.ErrorAs(t, err, &validation)
}

func TestVehicle_StatusTransitions(t *testing.T) {
	v, err := NewVehicle("B 1 A", "Ioniq 5", "Electric", 4, 2024, "", "")
	require.NoError(t, err)
	require.NoError(t, v.AssignDriver(uuid.New()))

	require.NoError(t, v.ChangeStatus(VehicleMaintenance))
	assert.False(t, v.IsBookable())

	require.NoError(t, v.ChangeStatus(VehicleRetired))
	assert.Nil(t, v.AssignedDriverID())

	var stateErr *domain.InvalidStateError
	assert.ErrorAs(t, v.ChangeStatus(VehicleAvailable), &stateErr)
	assert.ErrorAs(t, v.AssignDriver(uuid.New()), &stateErr)
}

func TestVehicle_UpdateIsPartial(t *testing.T) {
	v, err := NewVehicle("B 1 A", "Innova", "MPV", 7, 2022, "silver", "")
	require.NoError(t, err)

	v.Update("", 0, "white", "")
	assert.Equal(t, "Innova", v.Model())
	assert.Equal(t, 7, v.Seats())
	assert.Equal(t, "white", v.Color())
}

func TestDriver(t *testing.T) {
	_, err := NewDriver(nil, "", "0812", "SIM-1")
	assert.Error(t, err)

	d, err := NewDriver(nil, "Agus", "0812", "SIM-1")
	require.NoError(t, err)
	assert.True(t, d.Active())

	d.Deactivate()
	assert.False(t, d.Active())
}
