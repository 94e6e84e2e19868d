package models

// Nutrition is the six-field macro snapshot used everywhere a meal is
// estimated, stored or summed. Values are per effective serving.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Carbs    float64 `json:"carbs"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
}

// Floor values substituted when an estimate still has a zero field after
// every extraction stage ran. A real meal never renders as "0 kcal".
var NutritionFloors = Nutrition{
	Calories: 50,
	Carbs:    5,
	Protein:  2,
	Fat:      1,
	Fiber:    0.5,
	Sugar:    0.5,
}

func (n Nutrition) Add(o Nutrition) Nutrition {
	return Nutrition{
		Calories: n.Calories + o.Calories,
		Carbs:    n.Carbs + o.Carbs,
		Protein:  n.Protein + o.Protein,
		Fat:      n.Fat + o.Fat,
		Fiber:    n.Fiber + o.Fiber,
		Sugar:    n.Sugar + o.Sugar,
	}
}

func (n Nutrition) Scale(factor float64) Nutrition {
	return Nutrition{
		Calories: n.Calories * factor,
		Carbs:    n.Carbs * factor,
		Protein:  n.Protein * factor,
		Fat:      n.Fat * factor,
		Fiber:    n.Fiber * factor,
		Sugar:    n.Sugar * factor,
	}
}

// IsZero reports whether no field carries a usable signal.
func (n Nutrition) IsZero() bool {
	return n.Calories == 0 && n.Carbs == 0 && n.Protein == 0 &&
		n.Fat == 0 && n.Fiber == 0 && n.Sugar == 0
}

// ApplyFloors replaces any zero or negative field with its floor value.
func (n Nutrition) ApplyFloors() Nutrition {
	out := n
	if out.Calories <= 0 {
		out.Calories = NutritionFloors.Calories
	}
	if out.Carbs <= 0 {
		out.Carbs = NutritionFloors.Carbs
	}
	if out.Protein <= 0 {
		out.Protein = NutritionFloors.Protein
	}
	if out.Fat <= 0 {
		out.Fat = NutritionFloors.Fat
	}
	if out.Fiber <= 0 {
		out.Fiber = NutritionFloors.Fiber
	}
	if out.Sugar <= 0 {
		out.Sugar = NutritionFloors.Sugar
	}
	return out
}
