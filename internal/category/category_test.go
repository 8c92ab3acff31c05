package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-peopleflow/internal/region"
)

func TestDefault_Groups(t *testing.T) {
	t.Parallel()

	reg := Default()

	male, err := reg.Group(GroupMale)
	require.NoError(t, err)
	assert.Equal(t, []string{"male_child", "male_young", "male_adult", "male_senior"}, male)

	adult, err := reg.Group(GroupAdult)
	require.NoError(t, err)
	assert.Equal(t, []string{"male_adult", "female_adult"}, adult)

	person, err := reg.Group(GroupPerson)
	require.NoError(t, err)
	assert.Len(t, person, 8)

	plate, err := reg.Group(GroupPlate)
	require.NoError(t, err)
	assert.Equal(t, region.Offices(), plate)

	assert.Equal(t,
		[]string{"adult", "child", "female", "male", "person", "plate", "senior", "vehicle", "young"},
		reg.Names())
}

func TestJudge_ExactMembership(t *testing.T) {
	t.Parallel()

	judge, err := Default().Judge(GroupMale)
	require.NoError(t, err)

	assert.True(t, judge("male_adult"))
	// a substring match must not count as membership
	assert.False(t, judge("female_adult"))
	assert.False(t, judge("male"))
	assert.False(t, judge("totalCount"))
}

func TestUnknownGroup(t *testing.T) {
	t.Parallel()

	reg := Default()

	_, err := reg.Judge("aliens")
	require.ErrorIs(t, err, ErrUnknownGroup)

	_, err = reg.Group("")
	require.ErrorIs(t, err, ErrUnknownGroup)
}

func TestWith(t *testing.T) {
	t.Parallel()

	base := Default()
	reg := base.With(map[string][]string{
		"hokuriku":   {"福井", "金沢", "富山", "福井"},
		GroupVehicle: {"car"},
	})

	hk, err := reg.Group("hokuriku")
	require.NoError(t, err)
	assert.Equal(t, []string{"福井", "金沢", "富山"}, hk)

	v, err := reg.Group(GroupVehicle)
	require.NoError(t, err)
	assert.Equal(t, []string{"car"}, v)

	// the base registry is untouched
	_, err = base.Group("hokuriku")
	require.ErrorIs(t, err, ErrUnknownGroup)
	v, err = base.Group(GroupVehicle)
	require.NoError(t, err)
	assert.Len(t, v, 5)
}

func TestGroup_ReturnsCopy(t *testing.T) {
	t.Parallel()

	reg := Default()
	cols, err := reg.Group(GroupFemale)
	require.NoError(t, err)
	cols[0] = "x"

	again, err := reg.Group(GroupFemale)
	require.NoError(t, err)
	assert.Equal(t, "female_child", again[0])
}
