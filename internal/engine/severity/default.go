package severity

import "github.com/crimson-sun/vettriage/internal/model"

// Default returns the built-in catalog used when no catalog file is present.
func Default() *Catalog {
	return New(DefaultRecords())
}

// DefaultRecords returns the built-in catalog entries.
func DefaultRecords() []model.SeverityRecord {
	return []model.SeverityRecord{
		{
			Disease:        "Parvovirus",
			Severity:       model.SeveritySevere,
			Urgency:        model.UrgencyEmergency,
			Recommendation: "Seek emergency veterinary care immediately. Isolate from other dogs and keep hydrated until seen.",
			Description:    "Highly contagious viral infection attacking the gastrointestinal tract, common in unvaccinated puppies.",
			TypicalAnimals: []string{"Dog"},
		},
		{
			Disease:        "Canine Distemper",
			Severity:       model.SeveritySevere,
			Urgency:        model.UrgencyEmergency,
			Recommendation: "Seek emergency veterinary care. Isolate the animal; supportive care is required.",
			Description:    "Viral disease affecting the respiratory, gastrointestinal and nervous systems.",
			TypicalAnimals: []string{"Dog"},
		},
		{
			Disease:        "Pneumonia",
			Severity:       model.SeveritySevere,
			Urgency:        model.UrgencyHigh,
			Recommendation: "See a veterinarian within 24 hours. Chest radiographs and antibiotics are usually needed.",
			Description:    "Inflammation of the lungs, often bacterial, causing labored breathing and fever.",
			TypicalAnimals: []string{"Dog", "Cat", "Horse", "Cow", "Goat", "Sheep"},
		},
		{
			Disease:        "Feline Panleukopenia",
			Severity:       model.SeveritySevere,
			Urgency:        model.UrgencyEmergency,
			Recommendation: "Seek emergency veterinary care immediately and isolate from other cats.",
			Description:    "Highly contagious parvoviral infection in cats causing vomiting, diarrhea and immune suppression.",
			TypicalAnimals: []string{"Cat"},
		},
		{
			Disease:        "Foot and Mouth Disease",
			Severity:       model.SeveritySevere,
			Urgency:        model.UrgencyEmergency,
			Recommendation: "Notify a veterinarian and animal health authorities immediately. Quarantine the herd.",
			Description:    "Notifiable viral disease of cloven-hoofed animals causing fever, blisters and lameness.",
			TypicalAnimals: []string{"Cow", "Goat", "Sheep", "Pig"},
		},
		{
			Disease:        "Gastroenteritis",
			Severity:       model.SeverityModerate,
			Urgency:        model.UrgencyMedium,
			Recommendation: "Withhold food briefly, offer water, and see a veterinarian if vomiting or diarrhea persists beyond 24 hours.",
			Description:    "Inflammation of the stomach and intestines causing vomiting and diarrhea.",
			TypicalAnimals: []string{"Dog", "Cat", "Rabbit"},
		},
		{
			Disease:        "Kennel Cough",
			Severity:       model.SeverityMild,
			Urgency:        model.UrgencyLow,
			Recommendation: "Rest and keep away from other dogs. See a veterinarian if coughing lasts more than a week or breathing becomes labored.",
			Description:    "Contagious respiratory infection causing a dry, honking cough.",
			TypicalAnimals: []string{"Dog"},
		},
		{
			Disease:        "Upper Respiratory Infection",
			Severity:       model.SeverityMild,
			Urgency:        model.UrgencyLow,
			Recommendation: "Keep the animal warm and eating. See a veterinarian if appetite loss or discharge worsens.",
			Description:    "Viral or bacterial infection of the nose and throat with sneezing and discharge.",
			TypicalAnimals: []string{"Cat", "Dog", "Rabbit"},
		},
		{
			Disease:        "Mastitis",
			Severity:       model.SeverityModerate,
			Urgency:        model.UrgencyMedium,
			Recommendation: "Contact a veterinarian for diagnosis and treatment; separate milk from affected quarters.",
			Description:    "Inflammation of the mammary gland, usually bacterial.",
			TypicalAnimals: []string{"Cow", "Goat", "Sheep"},
		},
		{
			Disease:        "Colic",
			Severity:       model.SeveritySevere,
			Urgency:        model.UrgencyEmergency,
			Recommendation: "Call a veterinarian immediately. Remove feed and walk the horse gently while waiting.",
			Description:    "Abdominal pain in horses with causes ranging from gas to intestinal twisting.",
			TypicalAnimals: []string{"Horse"},
		},
		{
			Disease:        "Dermatitis",
			Severity:       model.SeverityMild,
			Urgency:        model.UrgencyLow,
			Recommendation: "Schedule a routine veterinary visit. Prevent scratching and keep the skin clean.",
			Description:    "Skin inflammation caused by allergies, parasites or infection.",
			TypicalAnimals: []string{"Dog", "Cat", "Horse"},
		},
		{
			Disease:        "Arthritis",
			Severity:       model.SeverityModerate,
			Urgency:        model.UrgencyLow,
			Recommendation: "Schedule a veterinary visit for pain management and weight control.",
			Description:    "Degenerative joint disease causing stiffness and lameness.",
			TypicalAnimals: []string{"Dog", "Cat", "Horse"},
		},
	}
}
